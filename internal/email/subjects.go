package email

const subjectAuditReportFmt = "Marketing audit for %s"
