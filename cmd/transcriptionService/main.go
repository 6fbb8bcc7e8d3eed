package main

import (
	"github.com/grihenrik/videotranscribe/internal/app/transcription"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	transcription.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
       _     __
 _  __(_)___/ /__ ___
| |/ / / __  / _ \/ _ \
|___/_/\__,_/\___/\___/
   __                                  _ __
  / /__________ _____  _______________(_) /_  ___
 / __/ ___/ __ ` + "`" + `/ __ \/ ___/ ___/ ___/ / __ \/ _ \
/ /_/ /  / /_/ / / / (__  ) /__/ /  / / /_/ /  __/
\__/_/   \__,_/_/ /_/____/\___/_/  /_/_.___/\___/  v: %s
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("github.com/grihenrik/videotranscribe"))
}
