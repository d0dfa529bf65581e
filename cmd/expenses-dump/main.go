package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/expenses/ledger"
	"github.com/robinvdvleuten/expenses/loader"
)

var (
	cli struct {
		File string `help:"Expense ledger file to decode." arg:"" type:"existingfile"`
	}
)

func main() {
	ctx := kong.Parse(&cli)

	l := ledger.New()
	result, err := loader.New().Load(context.Background(), cli.File, l)
	repr.Println(result)
	ctx.FatalIfErrorf(err)

	repr.Println(l.TotalExpenses())
	repr.Println(l.AllExpenses())
}
