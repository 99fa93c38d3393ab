package main

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/KotaSuchitra/MVCC/pkg/config"
	"github.com/KotaSuchitra/MVCC/pkg/db"
	"github.com/KotaSuchitra/MVCC/pkg/txn"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg := config.NewDefaultConfig()
	if *configPath != "" {
		loaded, err := config.FromFile(*configPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.Level())
	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	database := db.Open(db.Options{
		MaxPendingWrites: cfg.MaxPendingWrites,
		DetectConflicts:  cfg.DetectConflicts,
		Logger:           logger,
	})
	defer database.Stop()

	if err := database.CreateKey("A", []byte("initA")); err != nil {
		panic(err)
	}
	if err := database.CreateKey("B", []byte("initB")); err != nil {
		panic(err)
	}

	t1, err := database.Begin()
	if err != nil {
		panic(err)
	}
	printRead(t1, "A")
	must(t1.Set("A", []byte("100")))
	must(t1.Commit())

	t2, err := database.Begin()
	if err != nil {
		panic(err)
	}
	printRead(t2, "A")
	must(t2.Set("A", []byte("200")))
	must(t2.Commit())

	t3, err := database.Begin()
	if err != nil {
		panic(err)
	}
	printRead(t3, "A")
	must(t3.Abort())

	fmt.Println("\n=== Versioned Reads ===")
	for ts := uint64(0); ts <= database.CurrentTs(); ts++ {
		val, ok, err := database.ReadAsOf("A", ts)
		if err != nil {
			panic(err)
		}
		if ok {
			fmt.Printf("A at ts=%d -> %s\n", ts, val)
		} else {
			fmt.Printf("A at ts=%d -> NULL\n", ts)
		}
	}

	fmt.Println("\n=== All Versions of A ===")
	versions, err := database.DumpVersions("A")
	if err != nil {
		panic(err)
	}
	for _, v := range versions {
		fmt.Printf("  ts=%d -> %s\n", v.CommitTs, v.Value)
	}
}

func printRead(tx *txn.Txn, key string) {
	val, ok, err := tx.Get(key)
	if err != nil {
		panic(err)
	}
	if ok {
		fmt.Printf("[TX %d] READ %s -> %s\n", tx.ID(), key, val)
	} else {
		fmt.Printf("[TX %d] READ %s -> NULL\n", tx.ID(), key)
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
