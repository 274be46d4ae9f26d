package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/Bruno02468/gifception/internal/animator"
	"github.com/Bruno02468/gifception/internal/config"
	"github.com/Bruno02468/gifception/internal/logger"
)

var app = cli.NewApp()
var log = logger.Log

func init() {
	app.Name = "gifception"
	app.Usage = "Animated zoom loops from images that contain themselves"
	app.UsageText = "gifception [command] [options] input"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "debug, d", Usage: "log what every stage is doing"},
	}
	app.Before = func(c *cli.Context) error {
		if c.GlobalBool("debug") {
			logger.SetDebug(true)
		}
		return nil
	}
	app.Commands = []cli.Command{
		renderCommand(),
		nestedCommand(),
		{
			Name:    "backends",
			Aliases: []string{"b"},
			Usage:   "List the animation backends and what they can write",
			Action:  listBackends,
		},
		{
			Name:    "params",
			Aliases: []string{"p"},
			Usage:   "Write a settings file with all defaults, ready to edit",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "output, o", Value: "gifception.yml", Usage: "where to write the file"},
			},
			Action: writeParams,
		},
	}
}

func listBackends(c *cli.Context) error {
	for _, b := range animator.All() {
		ok, detail := b.Available()
		status := "[*]"
		if !ok {
			status = "[!]"
		}
		fmt.Printf("%s %s: %s\n", status, b.Name(), b.Description())
		fmt.Printf("    formats: %s\n", strings.Join(b.Formats(), ", "))
		fmt.Printf("    %s\n", detail)
	}
	return nil
}

func writeParams(c *cli.Context) error {
	path := c.String("output")
	if err := config.DefaultFile().Save(path); err != nil {
		return err
	}
	fmt.Printf("[+++] Settings written to %s\n", path)
	return nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
