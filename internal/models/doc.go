// Package models defines the core domain models for Tally.
//
// # Models
//
//   - User: registered account; friends are derived, not stored
//   - Group: recurring set of people who share expenses
//   - Expense: money spent by one or more payers and owed by one or more splitters
//   - Transfer: a direct settlement payment between two users
//
// # Design Principles
//
//  1. All monetary amounts are decimal.Decimal quantized to 2 fractional
//     digits. Floats never touch money; display formatting happens at the
//     HTTP boundary.
//  2. Models are value objects. Derived views (balances, stats, charts) live
//     in the ledger package and are recomputed, never persisted.
//  3. Relationships use ID strings instead of pointers to avoid circular
//     references.
package models
