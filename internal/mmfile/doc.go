// Package mmfile loads help file images, memory-mapping them where the
// platform allows. The returned bytes are read-only; writing to them faults.
package mmfile
