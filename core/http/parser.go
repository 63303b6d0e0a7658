package http

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

const (
	// DefaultMaxHeaderBytes caps the request line plus headers
	DefaultMaxHeaderBytes = 1 << 20

	// DefaultMaxBodyBytes caps the declared content-length
	DefaultMaxBodyBytes = 10 << 20
)

// ReadRequest reads exactly one request from r.
//
// The request line and headers are read up to the blank line that ends
// them, then exactly content-length bytes of body. An absent or zero
// content-length means an empty body. A connection closed before any byte
// arrived yields io.EOF; every other failure is a *ParseError.
// maxHeaderBytes <= 0 disables the header size cap and maxBodyBytes <= 0
// the content-length cap. The body buffer grows only as bytes arrive.
func ReadRequest(r *bufio.Reader, maxHeaderBytes, maxBodyBytes int) (*Request, error) {
	lr := &lineReader{r: r, max: maxHeaderBytes}

	line, err := lr.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) && lr.read == 0 {
			return nil, io.EOF
		}
		return nil, &ParseError{Err: err}
	}

	method, target, proto, err := parseRequestLine(line)
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}

	headers, err := readHeaders(lr)
	if err != nil {
		return nil, err
	}

	body, err := readBody(r, headers, int64(maxBodyBytes))
	if err != nil {
		return nil, err
	}

	req := NewRequest(method, target, headers, body)
	req.Proto = proto
	return req, nil
}

type lineReader struct {
	r    *bufio.Reader
	max  int
	read int
}

// readLine returns the next line without its CRLF or LF terminator
func (lr *lineReader) readLine() (string, error) {
	var line []byte
	for {
		chunk, err := lr.r.ReadSlice('\n')
		lr.read += len(chunk)
		if lr.max > 0 && lr.read > lr.max {
			return "", ErrHeaderTooLarge
		}
		line = append(line, chunk...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			if err == io.EOF && lr.read > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		break
	}

	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return string(line), nil
}

func parseRequestLine(line string) (method, target, proto string, err error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return "", "", "", ErrInvalidRequestLine
	}
	method, target, proto = parts[0], parts[1], parts[2]

	if method == "" {
		return "", "", "", ErrInvalidRequestLine
	}
	for _, c := range method {
		if c < 'A' || c > 'Z' {
			return "", "", "", ErrInvalidRequestLine
		}
	}

	if !strings.HasPrefix(target, "/") {
		return "", "", "", ErrInvalidRequestLine
	}

	if !strings.HasPrefix(proto, "HTTP/1.") {
		return "", "", "", ErrInvalidRequestLine
	}

	return method, target, proto, nil
}

func readHeaders(lr *lineReader) (Headers, error) {
	headers := NewHeaders()
	for {
		line, err := lr.readLine()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, &ParseError{Err: err}
		}
		if line == "" {
			return headers, nil
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok || !httpguts.ValidHeaderFieldName(name) {
			return nil, &ParseError{Line: line, Err: ErrInvalidHeader}
		}
		value = strings.TrimSpace(value)
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, &ParseError{Line: line, Err: ErrInvalidHeader}
		}

		headers.Add(name, value)
	}
}

func readBody(r *bufio.Reader, headers Headers, max int64) (string, error) {
	if te := headers.Get("transfer-encoding"); te != "" && !strings.EqualFold(te, "identity") {
		return "", &ParseError{Line: "transfer-encoding: " + te, Err: ErrUnsupportedTransferEncoding}
	}

	cl := headers.Get("content-length")
	if cl == "" {
		return "", nil
	}

	n, err := strconv.ParseInt(cl, 10, 64)
	if err != nil || n < 0 {
		return "", &ParseError{Line: "content-length: " + cl, Err: ErrInvalidLength}
	}
	if max > 0 && n > max {
		return "", &ParseError{Line: "content-length: " + cl, Err: ErrBodyTooLarge}
	}
	if n == 0 {
		return "", nil
	}

	var body strings.Builder
	if _, err := io.CopyN(&body, r, n); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", &ParseError{Err: err}
	}
	return body.String(), nil
}
