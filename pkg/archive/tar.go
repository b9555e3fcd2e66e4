// Copyright (c) 2025 A Bit of Help, Inc.

package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"strconv"

	"github.com/abitofhelp/treepack/pkg/task"
)

const tarName = "tar"

// PAX record keys carrying descriptor fields tar has no native slot for.
const (
	paxChecksum = "TREEPACK.crc"
	paxOrigSize = "TREEPACK.origsize"
)

func init() {
	registerContainer(tarContainer{})
}

// tarContainer lays entries out as a PAX tar stream. The descriptor
// checksum and the uncompressed size travel in PAX extended records.
type tarContainer struct{}

// Name returns the container's registry name.
func (tarContainer) Name() string { return tarName }

// NewBuilder returns a builder writing tar entries into w.
func (tarContainer) NewBuilder(w io.Writer) Builder {
	return &tarBuilder{tw: tar.NewWriter(w)}
}

// NewReader returns a reader iterating the tar entries in r.
func (tarContainer) NewReader(r io.Reader) EntryReader {
	return &tarEntryReader{tr: tar.NewReader(r)}
}

type tarBuilder struct {
	tw *tar.Writer
}

func (b *tarBuilder) Append(meta task.EntryMeta, payload []byte) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     meta.RelPath,
		Size:     meta.Size,
		Mode:     int64(meta.Mode.Perm()),
		ModTime:  meta.ModTime,
		Format:   tar.FormatPAX,
		PAXRecords: map[string]string{
			paxChecksum: strconv.FormatUint(uint64(meta.Checksum), 10),
			paxOrigSize: strconv.FormatInt(meta.OrigSize, 10),
		},
	}

	if err := b.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header for %q: %v", meta.RelPath, err)
	}
	if _, err := b.tw.Write(payload); err != nil {
		return fmt.Errorf("write body for %q: %v", meta.RelPath, err)
	}
	return nil
}

func (b *tarBuilder) Close() error {
	return b.tw.Close()
}

type tarEntryReader struct {
	tr *tar.Reader
}

func (r *tarEntryReader) Next() (task.EntryMeta, []byte, error) {
	for {
		hdr, err := r.tr.Next()
		if err != nil {
			// io.EOF marks the trailer and passes through untouched.
			return task.EntryMeta{}, nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		meta := task.EntryMeta{
			RelPath:  hdr.Name,
			Size:     hdr.Size,
			OrigSize: -1,
			Mode:     fs.FileMode(hdr.Mode).Perm(),
			ModTime:  hdr.ModTime,
		}
		if v, ok := hdr.PAXRecords[paxOrigSize]; ok {
			n, perr := strconv.ParseInt(v, 10, 64)
			if perr != nil {
				return meta, nil, fmt.Errorf("invalid %s record for %q: %v", paxOrigSize, hdr.Name, perr)
			}
			meta.OrigSize = n
		}

		payload, err := io.ReadAll(r.tr)
		if err != nil {
			return meta, nil, fmt.Errorf("read entry %q: %v", hdr.Name, err)
		}

		// Verify the descriptor checksum when the archive carries one.
		if v, ok := hdr.PAXRecords[paxChecksum]; ok {
			sum, perr := strconv.ParseUint(v, 10, 32)
			if perr != nil {
				return meta, nil, fmt.Errorf("invalid %s record for %q: %v", paxChecksum, hdr.Name, perr)
			}
			meta.Checksum = uint32(sum)
			if entryChecksum(meta) != meta.Checksum {
				return meta, nil, fmt.Errorf("descriptor checksum mismatch for %q", hdr.Name)
			}
		}

		return meta, payload, nil
	}
}
