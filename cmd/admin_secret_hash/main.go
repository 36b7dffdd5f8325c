package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/easyathlete/pkg"
)

// prints the bcrypt hash to put in EASYATHLETE_ADMIN_SECRET_HASH:
//
//	echo -n "the-secret" | go run ./cmd/admin_secret_hash
func main() {
	secret := flag.String("secret", "", "admin secret to hash (read from stdin when empty)")
	flag.Parse()

	var in io.Reader = os.Stdin
	if *secret != "" {
		in = strings.NewReader(*secret)
	}

	hash, err := hashSecret(in)
	if err != nil {
		log.Fatalf("hash admin secret: %s", err)
	}
	fmt.Println(hash)
}

func hashSecret(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errors.New("empty secret")
	}
	return pkg.HashPassword(secret)
}
