package checksum

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"hash"
	"io"

	"github.com/spf13/afero"
)

const bufferSize = 64 * 1024 // 64KB buffer

// Algorithm names a content digest
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA256 Algorithm = "sha256"
)

// ParseAlgorithm validates a digest name given on the command line
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case MD5, SHA256:
		return Algorithm(name), nil
	default:
		return "", fmt.Errorf("unsupported checksum algorithm: %q (want md5 or sha256)", name)
	}
}

func (a Algorithm) newHash() hash.Hash {
	if a == SHA256 {
		return sha256.New()
	}
	return md5.New()
}

// CalculateFile streams the file at filePath through the digest once
func CalculateFile(fs afero.Fs, algo Algorithm, filePath string) ([]byte, error) {
	file, err := fs.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return Calculate(algo, file)
}

// Calculate computes the digest of everything readable from r
func Calculate(algo Algorithm, r io.Reader) ([]byte, error) {
	h := algo.newHash()
	buffer := make([]byte, bufferSize)

	for {
		n, err := r.Read(buffer)
		if n > 0 {
			if _, err := h.Write(buffer[:n]); err != nil {
				return nil, fmt.Errorf("write to hash: %w", err)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
	}

	return h.Sum(nil), nil
}

// TeeReaderWithChecksum creates a reader that calculates checksum while reading
type TeeReaderWithChecksum struct {
	reader   io.Reader
	hash     hash.Hash
	checksum []byte
	done     bool
}

// NewTeeReaderWithChecksum creates a new TeeReaderWithChecksum
func NewTeeReaderWithChecksum(algo Algorithm, r io.Reader) *TeeReaderWithChecksum {
	return &TeeReaderWithChecksum{
		reader: r,
		hash:   algo.newHash(),
	}
}

// Read implements io.Reader
func (t *TeeReaderWithChecksum) Read(p []byte) (n int, err error) {
	n, err = t.reader.Read(p)
	if n > 0 {
		if _, werr := t.hash.Write(p[:n]); werr != nil {
			return n, werr
		}
	}
	if err == io.EOF {
		t.done = true
		t.checksum = t.hash.Sum(nil)
	}
	return n, err
}

// Checksum returns the calculated checksum (only valid after EOF)
func (t *TeeReaderWithChecksum) Checksum() ([]byte, error) {
	if !t.done {
		return nil, fmt.Errorf("checksum not yet calculated (read not complete)")
	}
	return t.checksum, nil
}

// CompareChecksums reports whether two digests match across all bytes
func CompareChecksums(checksum1, checksum2 []byte) bool {
	if len(checksum1) != len(checksum2) {
		return false
	}
	return subtle.ConstantTimeCompare(checksum1, checksum2) == 1
}

// Comparator decides whether two files hold byte-identical content
type Comparator struct {
	fs   afero.Fs
	algo Algorithm
}

// NewComparator creates a comparator digesting with algo
func NewComparator(fs afero.Fs, algo Algorithm) *Comparator {
	if algo == "" {
		algo = MD5
	}
	return &Comparator{fs: fs, algo: algo}
}

// Equal compares the files at a and b. Files of different sizes are unequal
// without being read; otherwise both are digested in full.
func (c *Comparator) Equal(a, b string) (bool, error) {
	infoA, err := c.fs.Stat(a)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", a, err)
	}
	infoB, err := c.fs.Stat(b)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", b, err)
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	sumA, err := CalculateFile(c.fs, c.algo, a)
	if err != nil {
		return false, fmt.Errorf("checksum %s: %w", a, err)
	}
	sumB, err := CalculateFile(c.fs, c.algo, b)
	if err != nil {
		return false, fmt.Errorf("checksum %s: %w", b, err)
	}

	return CompareChecksums(sumA, sumB), nil
}
