// Package models defines the core domain models for splitcharge.
//
// # Models
//
//   - Participant: who an item is shared with (a named handle, the payer, or everyone)
//   - Item: a single line on a receipt, split equally among its participants
//   - Receipt: an ordered list of items plus the authoritative total
//   - Alias: a stored label -> handle mapping from the alias book
//
// Money is represented with decimal.Decimal and rounded to cents where the
// receipt semantics require it.
//
// # Design Principles
//
//  1. **Value semantics**: participants compare by value and can key maps
//  2. **Immutability**: receipts are built once; transformations return new receipts
//  3. **No I/O**: loading, rendering and charging live in other packages
package models
