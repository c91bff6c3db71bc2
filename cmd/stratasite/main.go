// Command stratasite serves the public site API and the admin CMS API.
//
// Configuration comes from config files, STRATASITE_* environment variables
// and flags; see internal/app/bootstrap/config.go for the keys.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/stratasite/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
