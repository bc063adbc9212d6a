// Package board provides process-level recovery for the daemon.
// After a persistent sensor fault the cheapest way back to a known
// state is a cold restart of the whole process.
package board
