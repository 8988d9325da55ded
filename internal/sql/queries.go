package sql

import (
	"embed"
)

// Migrations holds the schema DDL applied by db.ApplyMigrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/select_claim.sql
var SelectClaim string

//go:embed queries/select_claim_for_update.sql
var SelectClaimForUpdate string

//go:embed queries/insert_claim.sql
var InsertClaim string

//go:embed queries/update_claim_correction.sql
var UpdateClaimCorrection string

//go:embed queries/claims_between.sql
var ClaimsBetween string

//go:embed queries/set_claim_status.sql
var SetClaimStatus string

//go:embed queries/select_status_for_update.sql
var SelectStatusForUpdate string

//go:embed queries/scripts_with_status.sql
var ScriptsWithStatus string

//go:embed queries/set_pdf_file.sql
var SetPDFFile string

//go:embed queries/upsert_report_record.sql
var UpsertReportRecord string

//go:embed queries/report_records.sql
var ReportRecords string

//go:embed queries/delete_report_record.sql
var DeleteReportRecord string

//go:embed queries/ensure_profile.sql
var EnsureProfile string

//go:embed queries/select_profile.sql
var SelectProfile string

//go:embed queries/upsert_profile.sql
var UpsertProfile string

//go:embed queries/insert_import_file.sql
var InsertImportFile string

//go:embed queries/recent_import_files.sql
var RecentImportFiles string

//go:embed queries/select_baseline.sql
var SelectBaseline string

//go:embed queries/select_alt_rates.sql
var SelectAltRates string

//go:embed queries/select_payers.sql
var SelectPayers string
