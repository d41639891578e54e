// Package domain defines the core types of the physiotherapy evaluation
// store.
//
// # Evaluation Aggregate
//
// Evaluation is the aggregate root: a header (date, practitioner, note), the
// Patient it was written for and 14 clinical sections. The aggregate is
// created, overwritten and destroyed as one unit; sections never exist on
// their own.
//
// # Field Map
//
// FieldMap is the flat, Spanish-keyed representation every form and
// document uses. FromFieldMap and ToFieldMap convert at the boundary; the
// binding table maps each logical name to one typed member. Values are
// coerced on the way in and ErrInvalidField reports what cannot be.
//
// # Queries
//
// ListQuery and Summary describe the lean list view: a name filter, a fixed
// page size of 30 and an optional row limit.
//
// # Design Principles
//
// - No database or external dependencies
// - Typed members inside, flat map only at the edges
package domain
