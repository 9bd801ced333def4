// Package notification stores user-facing notifications and their read
// receipts.
//
// Read state lives in a separate notification_reads table so a
// notification can be broadcast once and marked read per user. Listing
// computes Read with a LEFT JOIN.
package notification
