package main

import "github.com/RohitKattimani/MedReadApp/internal/cli"

func main() {
	cli.Execute()
}
