// Package drive locates optical drives and inspects their media state.
//
// Resolution prefers an explicitly configured device, then the kernel's udev
// database, then lsblk output, and finally a /dev/sr* glob so the tool works
// on systems without a running udev daemon. Media presence and disc type are
// read through the CDROM ioctl interface; ejection uses the same interface
// with a shell-out fallback for drives that refuse the ioctl.
package drive
