// Package memoryengine provides an in-memory implementation of the
// circulation ledger contracts, used by the feature tests and as a
// development fake.
//
// Transactions are serialized behind one mutex and run against a deep copy
// of the state: the copy replaces the live state only on success, so a
// failing unit of work leaves no partial mutation behind - the same
// all-or-nothing contract the database engines give.
package memoryengine
