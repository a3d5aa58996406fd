// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nishisan-dev/n-vault/internal/client"
	"github.com/nishisan-dev/n-vault/internal/config"
	"github.com/nishisan-dev/n-vault/internal/protocol"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [flags] <command> [args]

Commands:
  backup <file>     send a local file to the server
  restore <name>    download a stored file
  delete <name>     delete a stored file
  list              list the user's stored files

Flags:
`, filepath.Base(os.Args[0]))
	flag.PrintDefaults()
}

func main() {
	server := flag.String("server", "127.0.0.1:1234", "server address (host:port)")
	user := flag.Uint("user", 0, "numeric user id")
	compress := flag.String("compress", "none", "backup compression: none, gzip or zstd")
	limit := flag.String("limit", "", "backup upload rate limit (e.g. 512kb, 8mb)")
	output := flag.String("o", "", "restore output path (default: stored name in cwd)")
	decompress := flag.Bool("decompress", false, "decompress restored .gz/.zst files")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	if *user == 0 {
		fmt.Fprintln(os.Stderr, "Error: -user is required and must be non-zero")
		os.Exit(2)
	}

	var opts []client.Option
	if *limit != "" {
		bytesPerSec, err := config.ParseByteSize(*limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -limit: %v\n", err)
			os.Exit(2)
		}
		opts = append(opts, client.WithUploadLimit(bytesPerSec))
	}

	c, err := client.Dial(*server, uint32(*user), opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	var status uint16
	switch command {
	case "backup":
		status, err = runBackup(c, flag.Args()[1:], *compress)
	case "restore":
		status, err = runRestore(c, flag.Args()[1:], *output, *decompress)
	case "delete":
		status, err = runDelete(c, flag.Args()[1:])
	case "list":
		status, err = runList(c)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", command)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(client.StatusMessage(status))
	if !isSuccess(status) {
		os.Exit(1)
	}
}

func isSuccess(status uint16) bool {
	switch status {
	case protocol.StatusRestoreSuccess, protocol.StatusListSuccess, protocol.StatusGeneralSuccess:
		return true
	}
	return false
}

func runBackup(c *client.Client, args []string, compressFlag string) (uint16, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("backup requires exactly one file argument")
	}

	comp, err := client.ParseCompression(compressFlag)
	if err != nil {
		return 0, err
	}

	name, status, err := c.BackupFile(context.Background(), args[0], comp)
	if err != nil {
		return 0, err
	}
	if status == protocol.StatusGeneralSuccess {
		fmt.Printf("Stored as %s\n", name)
	}
	return status, nil
}

func runRestore(c *client.Client, args []string, output string, decompress bool) (uint16, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("restore requires exactly one filename argument")
	}
	name := args[0]

	outPath := output
	if outPath == "" {
		outPath = filepath.Base(name)
		if decompress {
			switch client.CompressionForName(name) {
			case client.CompressionGzip:
				outPath = outPath[:len(outPath)-len(".gz")]
			case client.CompressionZstd:
				outPath = outPath[:len(outPath)-len(".zst")]
			}
		}
	}

	status, err := c.RestoreFile(name, outPath, decompress)
	if err != nil {
		return 0, err
	}
	if status == protocol.StatusRestoreSuccess {
		fmt.Printf("Restored to %s\n", outPath)
	}
	return status, nil
}

func runDelete(c *client.Client, args []string) (uint16, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("delete requires exactly one filename argument")
	}
	return c.Delete(args[0])
}

func runList(c *client.Client) (uint16, error) {
	status, names, err := c.List()
	if err != nil {
		return 0, err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return status, nil
}
