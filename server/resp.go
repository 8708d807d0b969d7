package server

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/akmistry/go-util/bufferpool"
)

const (
	respTypeSimpleString = '+'
	respTypeError        = '-'
	respTypeInteger      = ':'
	respTypeBulkString   = '$'
	respTypeArray        = '*'

	// Requests are short: a command, an offset and a decimal value.
	respLineMaxLength  = 4 * 1024
	respBulkMaxLength  = 64 * 1024
	respArrayMaxLength = 64

	// Type byte, sign, 20 digits, CRLF.
	respIntegerMaxLength = 24
)

var (
	respCrlf = []byte{'\r', '\n'}

	respResponseOk      = []byte("+OK\r\n")
	respResponsePong    = []byte("+PONG\r\n")
	respResponseBulkNil = []byte("$-1\r\n")

	respArrayPool = sync.Pool{New: func() interface{} {
		return &respArray{
			// GET/SET need at most 3 elements.
			vals: make([]interface{}, 0, 4),
		}
	}}
)

type respError struct {
	msg string
}

type respArray struct {
	vals []interface{}
}

func (a *respArray) free() {
	for i, v := range a.vals {
		if buf, ok := v.(*[]byte); ok {
			bufferpool.Put(buf)
		}
		a.vals[i] = nil
	}
	a.vals = a.vals[:0]
	respArrayPool.Put(a)
}

// readLine reads up to the next CRLF, which is consumed but not returned.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadSlice('\n')
	if err == bufio.ErrBufferFull || len(line) > respLineMaxLength {
		return nil, fmt.Errorf("RedisServer: line exceeds %d bytes", respLineMaxLength)
	} else if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, fmt.Errorf("RedisServer: line not terminated by CRLF")
	}
	return line[:len(line)-2], nil
}

func readInteger(r *bufio.Reader) (int64, error) {
	line, err := readLine(r)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("RedisServer: invalid integer %q", line)
	}
	return v, nil
}

func readMessage(r *bufio.Reader) (interface{}, error) {
	dataType, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch dataType {
	case respTypeSimpleString:
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), line...), nil

	case respTypeError:
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		return &respError{string(line)}, nil

	case respTypeInteger:
		return readInteger(r)

	case respTypeBulkString:
		length, err := readInteger(r)
		if err != nil {
			return nil, err
		}
		if length < 0 {
			// Null
			return nil, nil
		} else if length > respBulkMaxLength {
			return nil, fmt.Errorf("RedisServer: bulk string length %d > max %d",
				length, respBulkMaxLength)
		}
		allocLen := int(length) + 2
		if allocLen < (1 << bufferpool.MinSizeBits) {
			allocLen = 1 << bufferpool.MinSizeBits
		}
		buf := bufferpool.GetUninit(allocLen)
		*buf = (*buf)[:int(length)+2]
		if _, err := io.ReadFull(r, *buf); err != nil {
			bufferpool.Put(buf)
			return nil, err
		}
		if !bytes.Equal((*buf)[length:], respCrlf) {
			bufferpool.Put(buf)
			return nil, fmt.Errorf("RedisServer: bulk string not terminated by CRLF")
		}
		*buf = (*buf)[:int(length)]
		return buf, nil

	case respTypeArray:
		length, err := readInteger(r)
		if err != nil {
			return nil, err
		}
		if length < 0 {
			return nil, nil
		} else if length > respArrayMaxLength {
			return nil, fmt.Errorf("RedisServer: array length %d > max %d",
				length, respArrayMaxLength)
		}
		array := respArrayPool.Get().(*respArray)
		for i := 0; i < int(length); i++ {
			v, err := readMessage(r)
			if err != nil {
				array.free()
				return nil, err
			}
			array.vals = append(array.vals, v)
		}
		return array, nil
	}

	return nil, fmt.Errorf("RedisServer: unexpected data type: 0x%02x", dataType)
}

func writeBulk(w *bufio.Writer, val []byte) error {
	if val == nil {
		_, err := w.Write(respResponseBulkNil)
		return err
	}

	buf := bufferpool.GetUninit(respIntegerMaxLength)
	defer bufferpool.Put(buf)
	*buf = append((*buf)[:0], respTypeBulkString)
	*buf = strconv.AppendInt(*buf, int64(len(val)), 10)
	*buf = append(*buf, respCrlf...)
	if _, err := w.Write(*buf); err != nil {
		return err
	}
	if _, err := w.Write(val); err != nil {
		return err
	}
	_, err := w.Write(respCrlf)
	return err
}

func writeInteger(w *bufio.Writer, val int64) error {
	buf := bufferpool.GetUninit(respIntegerMaxLength)
	defer bufferpool.Put(buf)
	*buf = append((*buf)[:0], respTypeInteger)
	*buf = strconv.AppendInt(*buf, val, 10)
	*buf = append(*buf, respCrlf...)
	_, err := w.Write(*buf)
	return err
}

func writeError(w *bufio.Writer, msg string) error {
	if err := w.WriteByte(respTypeError); err != nil {
		return err
	}
	if _, err := w.WriteString(msg); err != nil {
		return err
	}
	_, err := w.Write(respCrlf)
	return err
}
