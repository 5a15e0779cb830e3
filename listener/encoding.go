package listener

import (
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const maxBodyBytes = 10 << 20

func newDecodingReader(enc string, r io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "identity":
		return r, nil
	case "gzip", "x-gzip":
		return gzip.NewReader(r)
	case "deflate":
		return zlib.NewReader(r)
	case "compress", "br", "zstd":
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	default:
		slog.Warn("unknown encoding", "enc", enc)
		return r, nil
	}
}

// readAllEncoded undoes every coding listed in a Content-Encoding header, last applied
// first, and reads at most maxBodyBytes of the result.
func readAllEncoded(header string, r io.ReadCloser) ([]byte, error) {
	defer func() {
		if err := r.Close(); err != nil {
			slog.Warn("could not close body", "err", err)
		}
	}()

	var d io.Reader = r
	codings := strings.Split(header, ",")
	for i := len(codings) - 1; i >= 0; i-- {
		var err error
		if d, err = newDecodingReader(codings[i], d); err == io.EOF {
			return nil, nil
		} else if err != nil {
			return nil, err
		}
	}
	return io.ReadAll(io.LimitReader(d, maxBodyBytes))
}
