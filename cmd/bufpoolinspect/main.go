// Command bufpoolinspect opens a disk file through a small buffer pool,
// touches a handful of pages, and prints the pool's diagnostic dump. It
// exists to exercise buffer.Pool.Dump end to end, the way the teacher's own
// main.go exercises buffer.NewBufferPool end to end.
package main

import (
	"flag"
	"log"
	"os"

	"clockpool/buffer"
	"clockpool/file"
	"clockpool/page"
)

func main() {
	path := flag.String("file", "bufpoolinspect.db", "backing disk file")
	numBufs := flag.Int("bufs", 8, "number of frames in the pool")
	touch := flag.Int("touch", 4, "number of pages to allocate and pin before dumping")
	flag.Parse()

	f, err := file.OpenDiskFile(*path)
	if err != nil {
		log.Fatalf("open disk file: %v", err)
	}
	defer f.Close()

	pool := buffer.NewPool(*numBufs)
	defer pool.Close()

	ids := make([]page.ID, 0, *touch)
	for i := 0; i < *touch; i++ {
		id, _, err := pool.AllocPage(f)
		if err != nil {
			log.Fatalf("alloc page: %v", err)
		}
		ids = append(ids, id)
	}

	pool.Dump(os.Stdout)

	for _, id := range ids {
		if err := pool.UnpinPage(f, id, true); err != nil {
			log.Fatalf("unpin page %d: %v", id, err)
		}
	}
}
