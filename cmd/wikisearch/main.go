package main

import (
	_ "embed"
	"os"

	"github.com/LouYuanbo1/wikisearch/cmd/wikisearch/cmd"
)

// 默认配置,可以用 --config 指定其他 JSON/YAML 文件覆盖
//
//go:embed appconfig/appconfig.json
var appConfig []byte

func main() {
	if err := cmd.Execute(appConfig); err != nil {
		os.Exit(1)
	}
}
