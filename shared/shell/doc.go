// Package shell holds the infrastructure glue shared by the feature slices:
// retry with exponential backoff, handler result metadata, the fine
// materializer both overdue-detection paths delegate to, and database
// connection constructors.
//
// The split mirrors shared/core: core is pure domain arithmetic, shell is
// everything that touches storage, clocks, or observability.
package shell
