// Package models defines the core domain models for splitbill.
//
// # Stored Models
//
// A Session is the unit of persistence. It owns everything the UI edits:
//   - Person: someone taking part in the meal
//   - Bill: one receipt, with its Items and absolute Tax/ServiceCharge amounts
//   - Payment: money a person has already put in, counted against the whole session
//
// # Derived Models
//
// PersonTotals, Settlement and Summary are never stored. They are recomputed
// from a Session snapshot by the calculator package on every request.
//
// # Design Principles
//
//  1. Relationships use ID strings, never pointers (Item.SharedBy, Payment.PersonID)
//  2. Money is float64; comparisons against zero use Epsilon
//  3. A Session is a plain value; the service layer alone mutates and persists it
package models
