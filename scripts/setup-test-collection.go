package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"
)

var apiBase = "http://localhost:8080/api/v1"

type User struct {
	Username string
	Password string
	Access   string
	Refresh  string
}

type Expansion struct {
	APIID string `json:"api_id"`
	Name  string `json:"name"`
}

type Card struct {
	ID    string `json:"id"`
	APIID string `json:"api_id"`
	Name  string `json:"name"`
}

type UserCard struct {
	ID       string `json:"id"`
	CardName string `json:"card_name"`
	Quantity int    `json:"quantity"`
	Language string `json:"language"`
}

func do(method, path, token string, body interface{}, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		reader = bytes.NewBuffer(buf)
	}

	req, _ := http.NewRequest(method, apiBase+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("%s %s failed (%d): %s", method, path, resp.StatusCode, string(bodyBytes))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode failed: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func registerUser(username, password string) (*User, error) {
	if _, err := do("POST", "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	}, nil); err != nil {
		return nil, err
	}

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if _, err := do("POST", "/auth/token", "", map[string]string{
		"username": username,
		"password": password,
	}, &tokens); err != nil {
		return nil, err
	}

	return &User{Username: username, Password: password, Access: tokens.Access, Refresh: tokens.Refresh}, nil
}

func generateUsername() string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	random := make([]byte, 4)
	for i := range random {
		random[i] = letters[rand.Intn(len(letters))]
	}
	return fmt.Sprintf("collector_%d_%s", time.Now().Unix(), string(random))
}

func main() {
	if env := os.Getenv("API_URL"); env != "" {
		apiBase = env + "/api/v1"
	}

	fmt.Println("Setting up a demo collection...")

	password := "testpassword123"
	user, err := registerUser(generateUsername(), password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  ✓ Registered %s\n", user.Username)

	var expansions []Expansion
	if _, err := do("GET", "/expansions", user.Access, nil, &expansions); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list expansions: %v\n", err)
		os.Exit(1)
	}
	if len(expansions) == 0 {
		fmt.Fprintln(os.Stderr, "No expansions stored; run the importer with -expansions and -cards first")
		os.Exit(1)
	}

	// Pick the first expansion that has cards
	var cards []Card
	var picked Expansion
	for _, exp := range expansions {
		if _, err := do("GET", "/expansions/"+exp.APIID+"/cards", user.Access, nil, &cards); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list cards: %v\n", err)
			os.Exit(1)
		}
		if len(cards) > 0 {
			picked = exp
			break
		}
	}
	if len(cards) == 0 {
		fmt.Fprintln(os.Stderr, "No cards stored for any expansion")
		os.Exit(1)
	}
	fmt.Printf("  ✓ Using %s (%d cards)\n", picked.Name, len(cards))

	languages := []string{"EN", "JP", "FR"}
	for i, card := range cards {
		if i >= 10 {
			break
		}
		var uc UserCard
		status, err := do("POST", "/user-cards/add", user.Access, map[string]interface{}{
			"card":           card.ID,
			"quantity":       rand.Intn(3) + 1,
			"language":       languages[rand.Intn(len(languages))],
			"is_holographic": i%4 == 0,
			"is_favorite":    i == 0,
		}, &uc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to add %s: %v\n", card.Name, err)
			os.Exit(1)
		}
		fmt.Printf("  ✓ %s x%d (%s, %d)\n", uc.CardName, uc.Quantity, uc.Language, status)
	}

	fmt.Println("\n" + "============================================================")
	fmt.Println("DEMO COLLECTION SETUP COMPLETE")
	fmt.Println("============================================================")
	fmt.Printf("\n  Username: %s\n", user.Username)
	fmt.Printf("  Password: %s\n", user.Password)
	fmt.Printf("  Access:   %s\n", user.Access)
}
