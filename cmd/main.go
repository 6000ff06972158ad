package main

import (
	"os"

	"github.com/ambro01/simple-calories-sub000/config"
	"github.com/ambro01/simple-calories-sub000/routes"
)

func main() {
	config.InitDB()
	r := routes.SetupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
