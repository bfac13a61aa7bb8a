// Package folio turns brokerage statements into holdings and reconciles them
// with an existing portfolio.
//
// The core functionalities include:
//   - Import: reading holdings from the canonical CSV format, from brokerage
//     exports (a "positions" export keyed by symbol and the multi-account
//     Hargreaves Lansdown style export keyed by code and stock), and from
//     XLSX workbooks. Every path converges to a [HoldingRow].
//   - Export: writing holdings back in the canonical CSV format, and the
//     trade ledger in its own CSV format.
//   - Reconciliation: comparing freshly imported rows with the holdings
//     already in a portfolio, classifying each as new, changed, removed or
//     unchanged, and applying the accepted changes to a [Portfolio].
//
// Everything in this package is pure: parsing, diffing and serializing never
// perform I/O. Persistence lives in the store package and document
// understanding in the agent package.
//
// This package serves as the foundational logic for the `pcs` command-line
// tool.
package folio
