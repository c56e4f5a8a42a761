package registry

// doctorTypes is the doctor compliance catalogue (UK clinical onboarding set).
var doctorTypes = []TypeDefinition{
	{Key: "gmc_registration", DisplayName: "GMC Registration Certificate", Required: true, AutoExpiry: true, ValidityYears: 1},
	{Key: "medical_degree", DisplayName: "Medical Degree Certificate", Required: true},
	{Key: "dbs_check", DisplayName: "Enhanced DBS Check", Required: true, AutoExpiry: true, ValidityYears: 3},
	{Key: "right_to_work", DisplayName: "Right to Work Evidence", Required: true},
	{Key: "photo_id", DisplayName: "Photographic ID", Required: true, AutoExpiry: true, ValidityYears: 10},
	{Key: "proof_of_address", DisplayName: "Proof of Address", Required: true, AutoExpiry: true, ValidityYears: 1},
	{Key: "indemnity_insurance", DisplayName: "Professional Indemnity Insurance", Required: true, AutoExpiry: true, ValidityYears: 1},
	{Key: "appraisal_evidence", DisplayName: "Annual Appraisal Evidence", Required: true, AutoExpiry: true, ValidityYears: 1},
	{Key: "revalidation_statement", DisplayName: "GMC Revalidation Statement", Required: true, AutoExpiry: true, ValidityYears: 5},
	{Key: "basic_life_support", DisplayName: "Basic Life Support Certificate", Required: true, AutoExpiry: true, ValidityYears: 1},
	{Key: "safeguarding_adults", DisplayName: "Safeguarding Adults Certificate", Required: true, AutoExpiry: true, ValidityYears: 3},
	{Key: "safeguarding_children", DisplayName: "Safeguarding Children Certificate", Required: true, AutoExpiry: true, ValidityYears: 3},
	{Key: "infection_control", DisplayName: "Infection Prevention and Control Certificate", Required: true, AutoExpiry: true, ValidityYears: 1},
	{Key: "information_governance", DisplayName: "Information Governance Training", Required: true, AutoExpiry: true, ValidityYears: 1},
	{Key: "cv", DisplayName: "Curriculum Vitae", Required: true},
	{Key: "references", DisplayName: "Professional References", Required: true},
	{Key: "occupational_health", DisplayName: "Occupational Health Clearance", Required: true, AutoExpiry: true, ValidityYears: 2},
	{Key: "hepatitis_b_immunity", DisplayName: "Hepatitis B Immunity Evidence", Required: true, AutoExpiry: true, ValidityYears: 5},
	{Key: "mandatory_training", DisplayName: "Mandatory Training Record", Required: true, AutoExpiry: true, ValidityYears: 1},
	{Key: "prescribing_evidence", DisplayName: "Prescribing Qualification Evidence", Required: true},
	{Key: "specialty_certificate", DisplayName: "Specialty Training Certificate", Required: true},
	{Key: "complaints_history", DisplayName: "Complaints and Claims History", Required: true, AutoExpiry: true, ValidityYears: 1},
	{Key: "consultant_approval", DisplayName: "Responsible Officer Approval", Required: true, AutoExpiry: true, ValidityYears: 1},

	// Optional extras kept on file but never gating verification.
	{Key: "additional_qualifications", DisplayName: "Additional Qualifications"},
	{Key: "publications", DisplayName: "Publications and Research"},
}

// businessTypes is the business compliance catalogue.
var businessTypes = []TypeDefinition{
	{Key: "business_license", DisplayName: "Business License", Required: true, AutoExpiry: true, ValidityYears: 1},
	{Key: "insurance_certificate", DisplayName: "Public Liability Insurance Certificate", Required: true, AutoExpiry: true, ValidityYears: 1},
	{Key: "cqc_registration", DisplayName: "CQC Registration", Required: true, AutoExpiry: true, ValidityYears: 3},
	{Key: "data_protection_registration", DisplayName: "ICO Data Protection Registration", Required: true, AutoExpiry: true, ValidityYears: 1},
	{Key: "company_registration", DisplayName: "Companies House Registration", Required: true},

	{Key: "premises_photos", DisplayName: "Premises Photographs"},
}
