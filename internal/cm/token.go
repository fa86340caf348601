package cm

// Token is an opaque cross reference between objects in the store.
type Token uint64

// NullToken marks an absent reference.
const NullToken Token = 0
