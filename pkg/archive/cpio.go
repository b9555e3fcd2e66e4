// Copyright (c) 2025 A Bit of Help, Inc.

package archive

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/abitofhelp/treepack/pkg/task"
	"github.com/cavaliergopher/cpio"
)

const cpioName = "cpio"

func init() {
	registerContainer(cpioContainer{})
}

// cpioContainer lays entries out as an SVR4 cpio stream. cpio has no
// extension records, so the uncompressed size is not stored; integrity
// rides on the format's native payload checksum instead.
type cpioContainer struct{}

// Name returns the container's registry name.
func (cpioContainer) Name() string { return cpioName }

// NewBuilder returns a builder writing cpio entries into w.
func (cpioContainer) NewBuilder(w io.Writer) Builder {
	return &cpioBuilder{cw: cpio.NewWriter(w)}
}

// NewReader returns a reader iterating the cpio entries in r.
func (cpioContainer) NewReader(r io.Reader) EntryReader {
	return &cpioEntryReader{cr: cpio.NewReader(r)}
}

type cpioBuilder struct {
	cw *cpio.Writer
}

func (b *cpioBuilder) Append(meta task.EntryMeta, payload []byte) error {
	hdr := &cpio.Header{
		Name:    meta.RelPath,
		Mode:    cpio.TypeReg | cpio.FileMode(meta.Mode.Perm()),
		Size:    meta.Size,
		ModTime: meta.ModTime,
		Links:   1,
	}
	if len(payload) > 0 {
		sum := cpio.NewHash()
		sum.Write(payload)
		hdr.Checksum = sum.Sum32()
	}

	if err := b.cw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header for %q: %v", meta.RelPath, err)
	}
	if _, err := b.cw.Write(payload); err != nil {
		return fmt.Errorf("write body for %q: %v", meta.RelPath, err)
	}
	return nil
}

func (b *cpioBuilder) Close() error {
	return b.cw.Close()
}

type cpioEntryReader struct {
	cr *cpio.Reader
}

func (r *cpioEntryReader) Next() (task.EntryMeta, []byte, error) {
	for {
		hdr, err := r.cr.Next()
		if err != nil {
			// io.EOF marks the trailer and passes through untouched.
			return task.EntryMeta{}, nil, err
		}
		if !isRegularEntry(hdr.Mode) {
			continue
		}

		meta := task.EntryMeta{
			RelPath:  hdr.Name,
			Size:     hdr.Size,
			OrigSize: -1,
			Mode:     fs.FileMode(hdr.Mode & cpio.ModePerm),
			ModTime:  hdr.ModTime,
			Checksum: uint32(hdr.Checksum),
		}

		payload, err := io.ReadAll(r.cr)
		if err != nil {
			return meta, nil, fmt.Errorf("read entry %q: %v", hdr.Name, err)
		}

		// Verify the payload checksum when the archive carries one.
		if hdr.Checksum != 0 {
			sum := cpio.NewHash()
			sum.Write(payload)
			if sum.Sum32() != hdr.Checksum {
				return meta, nil, fmt.Errorf("payload checksum mismatch for %q", hdr.Name)
			}
		}

		return meta, payload, nil
	}
}

// isRegularEntry reports whether the mode's type bits select a regular
// file. The low 12 bits are permission and setuid/setgid/sticky bits.
func isRegularEntry(mode cpio.FileMode) bool {
	return mode&^cpio.FileMode(0o7777) == cpio.TypeReg
}
