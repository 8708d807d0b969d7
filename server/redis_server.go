package server

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"

	"github.com/akmistry/fixmem"
)

const wordSize = 8

var (
	respCmdGet    = []byte("get")
	respCmdSet    = []byte("set")
	respCmdDel    = []byte("del")
	respCmdExists = []byte("exists")
	respCmdAddr   = []byte("addr")
	respCmdSize   = []byte("size")
	respCmdPing   = []byte("ping")
)

// RedisServer exposes the words of a reserved region over RESP. Keys are
// byte offsets into the region, in decimal or 0x-prefixed hex, and values
// are decimal uint64s.
type RedisServer struct {
	h *fixmem.Handle
}

func NewRedisServer(h *fixmem.Handle) *RedisServer {
	return &RedisServer{
		h: h,
	}
}

// parseUint accepts decimal, or hex with an explicit 0x prefix. A leading
// zero is still decimal.
func parseUint(s string, bitSize int) (uint64, error) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return strconv.ParseUint(s[2:], 16, bitSize)
	}
	return strconv.ParseUint(s, 10, bitSize)
}

// ParseOffset parses a word offset as written by clients.
func ParseOffset(key []byte) (int, error) {
	off, err := parseUint(string(key), 32)
	if err != nil || off > math.MaxInt32 {
		return 0, fmt.Errorf("invalid offset %q", key)
	}
	return int(off), nil
}

// ParseValue parses a word value as written by clients.
func ParseValue(val []byte) (uint64, error) {
	return parseUint(string(val), 64)
}

func equalsCommand(cmd, req []byte) bool {
	const lowerBit = 0x20
	if len(cmd) != len(req) {
		return false
	}
	for i, v := range cmd {
		if (v | lowerBit) != (req[i] | lowerBit) {
			return false
		}
	}
	return true
}

func (s *RedisServer) get(w *bufio.Writer, key []byte) error {
	off, err := ParseOffset(key)
	if err != nil {
		return writeError(w, "ERR "+err.Error())
	}
	v, err := s.h.Uint64(off)
	if err != nil {
		return writeBulk(w, nil)
	}
	var buf [20]byte
	return writeBulk(w, strconv.AppendUint(buf[:0], v, 10))
}

func (s *RedisServer) set(w *bufio.Writer, key, val []byte) error {
	off, err := ParseOffset(key)
	if err != nil {
		return writeError(w, "ERR "+err.Error())
	}
	v, err := ParseValue(val)
	if err != nil {
		return writeError(w, "ERR value is not an unsigned 64-bit integer")
	}
	if err := s.h.SetUint64(off, v); err != nil {
		return writeError(w, fmt.Sprintf("ERR offset %d: %v", off, err))
	}
	if debugLog {
		log.Printf("SET %#x = %d", s.h.Addr()+uintptr(off), v)
	}
	_, err = w.Write(respResponseOk)
	return err
}

func (s *RedisServer) doCommand(cmd *respArray, w *bufio.Writer) error {
	if len(cmd.vals) < 1 {
		return fmt.Errorf("RedisServer: invalid command array length %d", len(cmd.vals))
	}

	args := make([][]byte, len(cmd.vals))
	for i, v := range cmd.vals {
		buf, ok := v.(*[]byte)
		if !ok {
			return fmt.Errorf("RedisServer: argument %d not a bulk string", i)
		}
		args[i] = *buf
	}
	name := args[0]
	args = args[1:]

	switch {
	case equalsCommand(name, respCmdGet):
		if len(args) != 1 {
			return writeError(w, "ERR wrong number of arguments for 'get' command")
		}
		return s.get(w, args[0])

	case equalsCommand(name, respCmdSet):
		if len(args) < 2 {
			return writeError(w, "ERR wrong number of arguments for 'set' command")
		}
		return s.set(w, args[0], args[1])

	case equalsCommand(name, respCmdDel):
		count := 0
		for _, key := range args {
			off, err := ParseOffset(key)
			if err != nil {
				continue
			}
			if s.h.SetUint64(off, 0) == nil {
				count++
			}
		}
		return writeInteger(w, int64(count))

	case equalsCommand(name, respCmdExists):
		count := 0
		for _, key := range args {
			off, err := ParseOffset(key)
			if err == nil && off+wordSize <= s.h.Size() {
				count++
			}
		}
		return writeInteger(w, int64(count))

	case equalsCommand(name, respCmdAddr):
		return writeInteger(w, int64(s.h.Addr()))

	case equalsCommand(name, respCmdSize):
		return writeInteger(w, int64(s.h.Size()))

	case equalsCommand(name, respCmdPing):
		_, err := w.Write(respResponsePong)
		return err
	}

	return writeError(w, fmt.Sprintf("ERR unknown command '%s'", name))
}

// Serve handles requests on conn until it is closed or sends something that
// isn't RESP.
func (s *RedisServer) Serve(conn io.ReadWriter) error {
	bufr := bufio.NewReader(conn)
	bufw := bufio.NewWriter(conn)
	for {
		cmd, err := readMessage(bufr)
		if err == io.EOF {
			// Connection closed. Non-error.
			break
		} else if err != nil {
			return err
		}

		cmdArray, ok := cmd.(*respArray)
		if !ok {
			return fmt.Errorf("RedisServer: request not array type")
		}
		err = s.doCommand(cmdArray, bufw)
		cmdArray.free()

		// Don't flush yet if there are commands still to be read
		if err == nil && bufr.Buffered() == 0 {
			err = bufw.Flush()
		}
		if err != nil {
			return err
		}
	}
	return nil
}
