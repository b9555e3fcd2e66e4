// Copyright (c) 2025 A Bit of Help, Inc.

package archive

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/abitofhelp/treepack/pkg/task"
)

// Container is an archive entry layout. Implementations wrap a concrete
// format (tar, cpio) and translate between task.EntryMeta and the format's
// native headers.
type Container interface {
	// Name returns the container's registry name.
	Name() string

	// NewBuilder returns a builder writing entries into w.
	NewBuilder(w io.Writer) Builder

	// NewReader returns a reader iterating the entries in r.
	NewReader(r io.Reader) EntryReader
}

// Builder writes a sequence of entries followed by the format trailer.
type Builder interface {
	// Append writes one entry header and its payload.
	Append(meta task.EntryMeta, payload []byte) error

	// Close writes the trailer. It does not close the underlying writer.
	Close() error
}

// EntryReader iterates over the file entries of a container stream,
// skipping anything that is not a regular file. Implementations verify
// whatever integrity information their format natively carries and return
// an error on mismatch.
type EntryReader interface {
	// Next returns the next entry's descriptor and raw payload. It returns
	// io.EOF after the last entry. A descriptor OrigSize of -1 means the
	// format did not record the uncompressed size.
	Next() (task.EntryMeta, []byte, error)
}

var containers = map[string]Container{}

func registerContainer(c Container) {
	containers[c.Name()] = c
}

// ContainerByName resolves a registered container by name,
// case-insensitively.
func ContainerByName(name string) (Container, error) {
	c, ok := containers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown container %q (available: %s)", name, strings.Join(ContainerNames(), ", "))
	}
	return c, nil
}

// DefaultContainer returns the container used when none is configured.
func DefaultContainer() Container {
	return containers[tarName]
}

// ContainerNames lists the registered container names, sorted.
func ContainerNames() []string {
	names := make([]string, 0, len(containers))
	for name := range containers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
