package dat

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"
)

// Hashes carries the digests computed over one file, lower-case hex.
// MD5 and SHA256 are only populated by a deep pass.
type Hashes struct {
	Size   int64
	CRC32  string
	MD5    string
	SHA1   string
	SHA256 string
}

const hashChunkSize = 1 << 20

// ComputeHashes streams the file once, feeding every requested digest per
// block. The fast pass computes crc32 and sha1; deep adds md5 and sha256.
// The context is polled between blocks so large files stay cancellable.
func ComputeHashes(ctx context.Context, path string, deep bool) (Hashes, error) {
	f, err := os.Open(path)
	if err != nil {
		return Hashes{}, fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	crc := crc32.NewIEEE()
	sha1Hash := sha1.New()
	var md5Hash, sha256Hash hash.Hash
	if deep {
		md5Hash = md5.New()
		sha256Hash = sha256.New()
	}

	var size int64
	buf := make([]byte, hashChunkSize)
	for {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return Hashes{}, ctx.Err()
			default:
			}
		}

		n, readErr := f.Read(buf)
		if n > 0 {
			block := buf[:n]
			size += int64(n)
			_, _ = crc.Write(block)
			_, _ = sha1Hash.Write(block)
			if deep {
				_, _ = md5Hash.Write(block)
				_, _ = sha256Hash.Write(block)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return Hashes{}, fmt.Errorf("read for hashing: %w", readErr)
		}
	}

	result := Hashes{
		Size:  size,
		CRC32: fmt.Sprintf("%08x", crc.Sum32()),
		SHA1:  fmt.Sprintf("%x", sha1Hash.Sum(nil)),
	}
	if deep {
		result.MD5 = fmt.Sprintf("%x", md5Hash.Sum(nil))
		result.SHA256 = fmt.Sprintf("%x", sha256Hash.Sum(nil))
	}
	return result, nil
}
