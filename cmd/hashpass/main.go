// Command hashpass prints the bcrypt hash for ADMIN_PASSWORD_HASH or VIEWER_PASSWORD_HASH.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"investment_tracker/internal/logger"
	"investment_tracker/internal/utils"
)

func main() {
	password := ""
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			logger.Fatal("Failed to read password from stdin", "error", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		logger.Fatal("Usage: hashpass <password> (or pipe it on stdin)")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		logger.Fatal("Failed to hash password", "error", err)
	}
	fmt.Println(hash)
}
