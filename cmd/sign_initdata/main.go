// Command sign_initdata prints a signed Mini App init data string for local
// testing against a running server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"telegram_clicker/internal/initdata"

	"github.com/joho/godotenv"
)

func main() {
	tgID := flag.Int64("id", 1234567890, "telegram user id")
	username := flag.String("username", "testuser", "telegram username")
	firstName := flag.String("first-name", "Tester", "first name")
	startParam := flag.String("start-param", "", "optional start_param")
	age := flag.Duration("age", 0, "backdate auth_date by this much")
	flag.Parse()

	_ = godotenv.Load()
	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "BOT_TOKEN not set")
		os.Exit(1)
	}

	user, err := json.Marshal(initdata.User{ID: *tgID, Username: *username, FirstName: *firstName})
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode user:", err)
		os.Exit(1)
	}

	fields := map[string]string{
		"auth_date": strconv.FormatInt(time.Now().Add(-*age).Unix(), 10),
		"query_id":  "local-" + strconv.FormatInt(time.Now().UnixNano(), 36),
		"user":      string(user),
	}
	if *startParam != "" {
		fields["start_param"] = *startParam
	}

	fmt.Println(initdata.Sign(fields, token))
}
