// Copyright 2026 The runchart Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Runchartserver runs the runchart analysis server on a local
// database. By default it keeps uploads in memory and forgets them on
// exit; point -dsn at a file or a MySQL instance to persist them.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	_ "github.com/go-sql-driver/mysql"

	"github.com/runchart/runchart/app"
	"github.com/runchart/runchart/mergeseries"
	"github.com/runchart/runchart/storage/db"
	_ "github.com/runchart/runchart/storage/db/sqlite3"
)

var (
	addr   = flag.String("addr", "localhost:8080", "serve HTTP on `address`")
	driver = flag.String("driver", "sqlite3", "database `driver` (sqlite3 or mysql)")
	dsn    = flag.String("dsn", ":memory:", "database `source` passed to the driver")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("runchartserver: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 0 {
		usage()
	}

	d, err := db.OpenSQL(*driver, *dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer d.Close()

	worker := mergeseries.NewWorker()
	defer worker.Close()

	a := &app.App{DB: d, Worker: worker}
	mux := http.NewServeMux()
	a.RegisterOnMux(mux)

	log.Printf("listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}
