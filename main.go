package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"treestore/pkg/debug/pagereader"
	"treestore/pkg/logging"
	"treestore/pkg/node"
	"treestore/pkg/page"
	"treestore/pkg/primitives"
	"treestore/pkg/resource"
	"treestore/pkg/store"
)

type Configuration struct {
	ResourceName string
	PageFile     string
	LogPath      string
	StoreDeweys  bool
	DemoMode     bool
}

func main() {
	config := parseArguments()

	if err := logging.Init(logging.Config{
		Level:      logging.LevelInfo,
		OutputPath: config.LogPath,
		Format:     "text",
	}); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	res, err := openResource(config)
	if err != nil {
		log.Fatalf("Failed to open resource: %v", err)
	}
	defer res.Close()

	if config.DemoMode {
		if err := writeDemoPages(res); err != nil {
			log.Fatalf("Demo mode failed: %v", err)
		}
	}

	if err := pagereader.Run(res); err != nil {
		log.Fatalf("Failed to start inspector: %v", err)
	}
}

// parseArguments processes command-line flags
func parseArguments() Configuration {
	var config Configuration

	flag.StringVar(&config.ResourceName, "resource", "default", "Resource name")
	flag.StringVar(&config.PageFile, "file", "./data/pages.dat", "Page file to inspect")
	flag.StringVar(&config.LogPath, "log", "", "Log file path (stderr if empty)")
	flag.BoolVar(&config.StoreDeweys, "dewey", false, "Resource stores dewey IDs")
	flag.BoolVar(&config.DemoMode, "demo", false, "Write sample pages before inspecting")
	flag.Parse()

	return config
}

func openResource(config Configuration) (*store.Resource, error) {
	path := primitives.Filepath(config.PageFile)
	if dir := path.Dir(); !dir.Exists() {
		if err := os.MkdirAll(dir.String(), 0o750); err != nil {
			return nil, err
		}
	}
	resourceConfig := resource.NewConfiguration(config.ResourceName, node.DataNodeCodec{}, config.StoreDeweys)
	return store.OpenResource(resourceConfig, path)
}

// writeDemoPages commits a handful of sample pages so the inspector
// has something to show on a fresh file.
func writeDemoPages(res *store.Resource) error {
	trx := store.NewTransaction(res)

	var leaves []*page.KeyValueLeafPage
	for pageKey := primitives.PageKey(0); pageKey < 3; pageKey++ {
		leaf := page.NewKeyValueLeafPage(pageKey, page.NodeKind, primitives.NullIDLong, trx)
		base := primitives.NodeKey(int64(pageKey) * page.SlotsPerPage)
		for offset := primitives.NodeKey(0); offset < 16; offset++ {
			key := base + offset
			value := fmt.Sprintf("record %d on page %d", key, pageKey)
			leaf.SetEntry(key, node.NewDataNode(key, node.TextKind, nil, []byte(value)))
		}
		// One record per page large enough to overflow.
		big := base + 100
		leaf.SetEntry(big, node.NewDataNode(big, node.TextKind, nil,
			[]byte(strings.Repeat("x", page.MaxRecordSize+1))))
		leaves = append(leaves, leaf)
	}

	_, err := trx.CommitLeaves(leaves)
	return err
}
