package vision

// ExtractionPrompt instructs the model to classify a document and return its
// key fields as a single JSON object.
const ExtractionPrompt = `Analyze the provided document content. Perform the following tasks:
1. Classify Document Type: Determine the most likely type from this list: [prescription, lab_report, doctor_note, insurance, vaccination, imaging, other]. Use 'other' if unsure.
2. Extract Key Information:
    * document_date: Primary date found (YYYY-MM-DD format) or null.
    * title: Concise title (max 50 chars) or null.
    * provider_name: Primary doctor/facility name or null.
    * notes: Brief 1-2 sentence summary or null.
    * tags: List of 3-5 relevant keywords (strings) or empty list [].
3. Format Output: Return ONLY a single, valid JSON object with keys: "document_type", "document_date", "title", "provider_name", "notes", "tags". Use null for missing values. Ensure "tags" is a list.

Example JSON Output:
{
  "document_type": "lab_report",
  "document_date": "2025-05-01",
  "title": "Complete Blood Count (CBC)",
  "provider_name": "Dr. Evelyn Reed",
  "notes": "Results within normal limits.",
  "tags": ["cbc", "blood test", "normal"]
}

Strict Instructions:
- Adhere strictly to the allowed document types.
- Ensure the date format is "YYYY-MM-DD" or null.
- Provide null for keys where information is not found.
- Ensure the "tags" value is a JSON list of strings (or empty list).
- Output ONLY the JSON object and nothing else.

Document content follows this instruction.`
