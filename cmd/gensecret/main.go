package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// Prints a random token suitable for VERIFY_TOKEN.
const verifyTokenBytesLen = 32

func main() {
	b := make([]byte, verifyTokenBytesLen)

	_, err := rand.Read(b)
	if err != nil {
		fmt.Printf("error while generating verify token: %v", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
