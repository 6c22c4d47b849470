// Package issueloan implements the Issue Loan use case.
//
// This feature issues an available book to an active patron. It follows the
// Load-Decide-Apply pattern with proper separation between infrastructure
// concerns (CommandHandler) and pure business logic (Decide function).
//
// The business logic enforces the full precondition chain: the book must be
// active with a copy available, the patron must be active, below the loan
// limit, free of overdue loans, and must not already hold this title. The
// copy-counter decrement and the loan insert commit in one transaction, so a
// failure between them can never strand the counter.
package issueloan
