// Copyright 2023 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package uhppoted-app-forms stores the records submitted from a set of fixed-layout ISMS forms (asset
classification, core document control, risk treatment and document management checklists) in named
tables, each with a single header row. Tables can be kept as Google Sheets worksheets, in a SQLite or
PostgreSQL database or in memory.

uhppoted-app-forms supports the following commands:

  - authorise, to authorise application access to Google Sheets and Google Drive
  - serve, to serve the table and form operations as a JSON API over HTTP
  - get, to download a table as a TSV file
  - put, to store a TSV file to a table, replacing or appending to the existing rows
  - revision, to display the worksheets and latest revision of the spreadsheet
  - version, to display the current version
*/
package forms
