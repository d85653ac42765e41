package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nyiyui.ca/hato/senro/persist"
	"nyiyui.ca/hato/senro/store"
)

var dbPath string
var id string
var mode string

func main() {
	defer zap.S().Sync()
	level := zap.LevelFlag("log-level", zap.InfoLevel, "set log level")
	flag.StringVar(&dbPath, "db-path", "./senro.db", "path to database")
	flag.StringVar(&id, "id", "", "layout ID to use")
	flag.StringVar(&mode, "mode", "", "read, write, list or delete")
	flag.Parse()
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(*level)
	cfg.OutputPaths = []string{"stderr"}
	dev, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(dev)

	switch mode {
	case "read", "write", "list", "delete":
	default:
		zap.S().Fatal("mode must be read, write, list or delete")
	}

	err = main2()
	if err != nil {
		zap.S().Fatal(err)
	}
}

func parseID() (uuid.UUID, error) {
	if mode == "write" && id == "" {
		return uuid.New(), nil
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("layout %q is not a valid UUID: %w", id, err)
	}
	return u, nil
}

func main2() error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if mode == "list" {
		entries, err := st.List()
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s\t%016x\n", e.ID, e.Sum)
		}
		return nil
	}
	u, err := parseID()
	if err != nil {
		return err
	}
	switch mode {
	case "read":
		y, sum, err := st.Load(u)
		if err != nil {
			return err
		}
		zap.S().Infow("found layout", "id", u, "sum", fmt.Sprintf("%016x", sum), "tracks", y.Len())
		return persist.Encode(os.Stdout, y)
	case "write":
		y, err := persist.Decode(os.Stdin)
		if err != nil {
			return fmt.Errorf("stdin: %w", err)
		}
		sum, err := st.Save(u, y)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%016x\n", u, sum)
		return nil
	case "delete":
		return st.Delete(u)
	default:
		panic("unreachable")
	}
}
