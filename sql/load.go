package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed candidates.sql
var candidatesSQL string

// Function lists for verification
var CandidatesFunctions = []string{
	"init_candidates",
	"insert_candidate",
	"insert_candidate_edge",
	"select_candidate",
	"select_candidates_by_similarity",
	"select_all_candidates",
	"select_candidate_edges",
	"delete_candidate",
}

// Init initializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadCandidatesSql loads candidate-related SQL functions
func LoadCandidatesSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, CandidatesFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing candidates functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(candidatesSQL)
	if err != nil {
		return fmt.Errorf("error executing candidates SQL: %w", err)
	}

	exist, err := checkFunctions(db, CandidatesFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL candidates functions loaded successfully")
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
