package main

import (
	"os"

	"portfolio-chat/backend/internal/app"
)

func main() {
	os.Exit(app.Run())
}
