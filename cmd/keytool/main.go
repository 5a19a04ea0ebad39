package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/howeyc/gopass"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/algonaut/goalgo/pkg/account"
	"github.com/algonaut/goalgo/pkg/proto"
)

var usage = `

Usage:
  keytool command [flags]

Available Commands:
  generate     Generate a fresh account and print its mnemonic
  address      Print the address of a mnemonic
  sign         Sign every transaction in a transaction file
  groupid      Bind the transactions in a file into an atomic group

`

type Opts struct {
	In     string
	Out    string
	Sender string
}

func main() {
	logger := zap.Must(zap.NewProduction())
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	opts := Opts{}

	flag.StringVarP(&opts.In, "in", "i", "", "Path to transaction file to read")
	flag.StringVarP(&opts.Out, "out", "o", "", "Path to transaction file to write")
	flag.StringVarP(&opts.Sender, "sender", "s", "", "Keep only this sender's transactions when grouping")

	flag.Parse()

	command := flag.Arg(0)

	switch command {
	case "generate":
		generate()
	case "address":
		address()
	case "sign":
		sign(opts)
	case "groupid":
		groupid(opts)
	default:
		showUsageAndExit()
	}
}

func showUsageAndExit() {
	fmt.Print(usage)
	flag.PrintDefaults()
	os.Exit(0)
}

func generate() {
	acc, err := account.Generate()
	if err != nil {
		zap.S().Fatalf("Failed to generate account: %v", err)
	}
	phrase, err := acc.Mnemonic()
	if err != nil {
		zap.S().Fatalf("Failed to derive mnemonic: %v", err)
	}
	fmt.Printf("address: %s\n", acc.Address)
	fmt.Printf("mnemonic: %s\n", phrase)
}

func readAccount() account.Account {
	fmt.Print("Enter mnemonic: ")
	phrase, err := gopass.GetPasswd()
	if err != nil {
		zap.S().Fatal("Interrupt")
	}
	acc, err := account.FromMnemonic(strings.TrimSpace(string(phrase)))
	if err != nil {
		zap.S().Fatalf("Invalid mnemonic: %v", err)
	}
	return acc
}

func address() {
	acc := readAccount()
	fmt.Printf("address: %s\n", acc.Address)
}

func sign(opts Opts) {
	if opts.In == "" || opts.Out == "" {
		zap.S().Fatal("Both --in and --out are required")
	}
	acc := readAccount()

	records, err := proto.ReadFromFile(opts.In)
	if err != nil {
		zap.S().Fatalf("Failed to read transactions: %v", err)
	}

	signed := 0
	out := make([]proto.Decoded, 0, len(records))
	for _, r := range records {
		tx, ok := r.(proto.Transaction)
		if !ok {
			out = append(out, r)
			continue
		}
		stx, err := proto.Sign(acc.SecretKey, tx)
		if err != nil {
			zap.S().Fatalf("Failed to sign transaction: %v", err)
		}
		out = append(out, &stx)
		signed++
	}

	if err := proto.WriteToFile(opts.Out, out...); err != nil {
		zap.S().Fatalf("Failed to write transactions: %v", err)
	}
	fmt.Printf("signed %d of %d transactions\n", signed, len(records))
}

func groupid(opts Opts) {
	if opts.In == "" || opts.Out == "" {
		zap.S().Fatal("Both --in and --out are required")
	}
	var sender proto.Address
	if opts.Sender != "" {
		var err error
		sender, err = proto.NewAddressFromString(opts.Sender)
		if err != nil {
			zap.S().Fatalf("Invalid sender address: %v", err)
		}
	}

	records, err := proto.ReadFromFile(opts.In)
	if err != nil {
		zap.S().Fatalf("Failed to read transactions: %v", err)
	}
	txns := make([]proto.Transaction, 0, len(records))
	for _, r := range records {
		tx, ok := r.(proto.Transaction)
		if !ok {
			zap.S().Fatal("Group files must contain unsigned transactions only")
		}
		txns = append(txns, tx)
	}

	grouped, err := proto.AssignGroupID(txns, sender)
	if err != nil {
		zap.S().Fatalf("Failed to compute group id: %v", err)
	}
	out := make([]proto.Decoded, 0, len(grouped))
	for _, tx := range grouped {
		out = append(out, tx.(proto.Decoded))
	}

	if err := proto.WriteToFile(opts.Out, out...); err != nil {
		zap.S().Fatalf("Failed to write transactions: %v", err)
	}
	fmt.Printf("grouped %d transactions\n", len(grouped))
}
