package main

import (
	boardsApp "boards/internal/app"
)

func main() {
	boardsApp.ServeMCP()
}
