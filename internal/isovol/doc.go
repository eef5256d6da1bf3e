// Package isovol reads ISO9660 primary volume descriptors straight from
// optical media or image files.
//
// The descriptor supplies everything the archiver needs before a single data
// block is copied: the volume identifier and publisher for label derivation,
// the logical block size and count that define exactly how many bytes to
// stream, and the creation timestamp that yields the blkid-compatible volume
// UUID. Only the primary descriptor is consumed; supplementary (Joliet)
// descriptors and the directory hierarchy are ignored.
package isovol
