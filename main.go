package main

import (
	"fmt"
	"os"

	cl "github.com/aep/videolib/client"
	kv "github.com/aep/videolib/kv/cmd"
	"github.com/aep/videolib/mkmtls"
	sr "github.com/aep/videolib/server"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "videolib",
	Short:        "video library dashboard api and tools",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(sr.CMD)
	rootCmd.AddCommand(kv.CMD)
	rootCmd.AddCommand(cl.CMD)
	rootCmd.AddCommand(mkmtls.CMD)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
