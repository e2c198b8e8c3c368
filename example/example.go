package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/lanrat/spillover"
)

var count = int(1e6) // 1M

func main() {
	config := spillover.DefaultConfig()
	config.MaxInMemorySize = 1 << 20 // 1MB
	config.PreferDiskBacked = true
	config.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := spillover.With("example_", "", config, func(s *spillover.Stream) error {
		// write random varints
		var sum int64
		buf := make([]byte, binary.MaxVarintLen64)
		w := bufio.NewWriter(s)
		for i := 0; i < count; i++ {
			v := rand.Int63n(1000)
			sum += v
			n := binary.PutVarint(buf, v)
			if _, err := w.Write(buf[:n]); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes, in memory: %t\n", s.Size(), s.InMemory())

		// read them back
		if err := s.Finalize(); err != nil {
			return err
		}
		r := bufio.NewReader(s)
		var readSum int64
		for i := 0; i < count; i++ {
			v, err := binary.ReadVarint(r)
			if err != nil {
				return err
			}
			readSum += v
		}
		fmt.Printf("sum written %d, sum read %d\n", sum, readSum)
		return nil
	})
	if err != nil {
		fmt.Printf("err: %s", err.Error())
	}
}
