// Package usbid looks up vendor and product names in the USB ID database
// (usb.ids) shipped with usbutils and hwdata.
//
//	db, err := usbid.Open(usbid.DefaultPaths...)
//	if err == nil {
//	    fmt.Println(db.Lookup(0x0525, 0xa4a0))
//	}
//
// A missing database is not an error worth failing for: Lookup on a nil
// *Database returns empty names.
package usbid
