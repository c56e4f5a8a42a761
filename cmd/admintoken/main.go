// Command admintoken mints an admin API token and prints the bcrypt hash to
// store in CARETRUST_ADMIN_TOKEN_HASH. Pass -token to hash an existing value
// instead of generating a fresh one.
package main

import (
	"flag"
	"fmt"
	"os"

	"caretrust/pkg/secrets"
)

func main() {
	token := flag.String("token", "", "hash this token instead of generating one")
	flag.Parse()

	plain := *token
	if plain == "" {
		generated, err := secrets.Generate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate token: %v\n", err)
			os.Exit(1)
		}
		plain = generated
		fmt.Printf("token: %s\n", plain)
	}

	hash, err := secrets.Hash(plain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("hash:  %s\n", hash)
}
