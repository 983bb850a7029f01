// Package stress runs the cds containers under concurrent load and checks
// their locking and lifecycle properties: uniform fills, deadlock-free
// swaps, untorn reads, leak-free rollback and balanced allocator
// accounting. It backs the cdsstress command.
package stress
