package lz4

import "log"

// enable debug printing
const debug = false

func printf(format string, a ...interface{}) {
	if debug {
		log.Printf("lz4: "+format, a...)
	}
}
