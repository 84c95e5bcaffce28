package usbid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultPaths lists the standard locations for the USB ID database.
var DefaultPaths = []string{
	"/usr/share/hwdata/usb.ids",
	"/var/lib/usbutils/usb.ids",
	"/usr/share/misc/usb.ids",
}

// ErrNoDatabase is returned by Open when none of the paths can be read.
var ErrNoDatabase = errors.New("usb.ids not found")

// Names holds the human-readable names of a device. Either may be empty.
type Names struct {
	Vendor  string
	Product string
}

// String formats the names for logging, falling back to "unknown".
func (n Names) String() string {
	switch {
	case n.Vendor == "" && n.Product == "":
		return "unknown"
	case n.Product == "":
		return n.Vendor
	case n.Vendor == "":
		return n.Product
	default:
		return n.Vendor + " " + n.Product
	}
}

// Database maps vendor and product IDs to names. It is immutable once
// parsed and safe for concurrent use.
type Database struct {
	vendors  map[uint16]string
	products map[uint32]string // (VID<<16)|PID
}

// Open parses the first readable database among paths.
func Open(paths ...string) (*Database, error) {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		db, err := Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return db, nil
	}
	return nil, ErrNoDatabase
}

// Parse reads the usb.ids format: vendor lines "vvvv  name" at column zero,
// each followed by product lines "\tpppp  name". Everything after the vendor
// list (device classes, HID tables, ...) starts with a keyword instead of a
// hex ID and ends the current vendor.
func Parse(r io.Reader) (*Database, error) {
	db := &Database{
		vendors:  make(map[uint16]string),
		products: make(map[uint32]string),
	}

	var vendor uint16
	inVendor := false
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}

		if line[0] == '\t' {
			if !inVendor || strings.HasPrefix(line, "\t\t") {
				continue
			}
			if id, name, ok := splitEntry(line[1:]); ok {
				db.products[uint32(vendor)<<16|uint32(id)] = name
			}
			continue
		}

		id, name, ok := splitEntry(line)
		inVendor = ok
		if ok {
			vendor = id
			db.vendors[id] = name
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return db, nil
}

// splitEntry parses "xxxx  name".
func splitEntry(s string) (uint16, string, bool) {
	if len(s) < 6 || s[4] != ' ' {
		return 0, "", false
	}
	id, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, "", false
	}
	return uint16(id), strings.TrimSpace(s[5:]), true
}

// Lookup returns the names known for a device. A nil Database knows nothing.
func (db *Database) Lookup(vendorID, productID uint16) Names {
	if db == nil {
		return Names{}
	}
	return Names{
		Vendor:  db.vendors[vendorID],
		Product: db.products[uint32(vendorID)<<16|uint32(productID)],
	}
}

// Len returns the number of vendors and products in the database.
func (db *Database) Len() (vendors, products int) {
	if db == nil {
		return 0, 0
	}
	return len(db.vendors), len(db.products)
}
